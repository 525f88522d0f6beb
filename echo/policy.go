package echo

import "fmt"

// OverwritePolicy decides what happens when a byte arrives while another is
// still pending in the mailbox.
type OverwritePolicy uint8

const (
	// KeepNewest replaces the pending byte; the older byte is lost.
	KeepNewest OverwritePolicy = iota
	// KeepOldest discards the arriving byte.
	KeepOldest
	// StallReceive stops servicing reception while a byte is pending, leaving
	// the next byte in the peripheral's receive register until the mailbox drains.
	StallReceive
)

func (p OverwritePolicy) String() string {
	switch p {
	case KeepNewest:
		return "keep-newest"
	case KeepOldest:
		return "keep-oldest"
	case StallReceive:
		return "stall"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy accepts the names printed by String.
func ParsePolicy(s string) (OverwritePolicy, error) {
	switch s {
	case "", "keep-newest", "newest":
		return KeepNewest, nil
	case "keep-oldest", "oldest":
		return KeepOldest, nil
	case "stall":
		return StallReceive, nil
	}
	return 0, fmt.Errorf("echo: unknown overwrite policy %q", s)
}
