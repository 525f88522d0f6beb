package hal

import "testing"

func TestUARTStatus(t *testing.T) {
	tests := []struct {
		st     UARTStatus
		rx, tx bool
		errs   LineErrors
		str    string
	}{
		{0, false, false, 0, "idle"},
		{StatusRxReady | StatusTxReady, true, true, 0, "rx|tx"},
		{StatusTxReady | StatusOverrun, false, true, StatusOverrun, "tx|overrun"},
		{StatusFraming | StatusParity | StatusBreak, false, false, StatusFraming | StatusParity | StatusBreak, "framing|parity|break"},
	}
	for _, tt := range tests {
		if got := tt.st.RxReady(); got != tt.rx {
			t.Fatalf("%v.RxReady() = %v, want %v", tt.st, got, tt.rx)
		}
		if got := tt.st.TxReady(); got != tt.tx {
			t.Fatalf("%v.TxReady() = %v, want %v", tt.st, got, tt.tx)
		}
		if got := tt.st.Errors(); got != tt.errs {
			t.Fatalf("%v.Errors() = %v, want %v", tt.st, got, tt.errs)
		}
		if got := tt.st.String(); got != tt.str {
			t.Fatalf("String() = %q, want %q", got, tt.str)
		}
	}
}
