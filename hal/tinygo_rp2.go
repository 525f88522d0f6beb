//go:build tinygo && (rp2040 || rp2350)

package hal

import (
	"machine"
	"time"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	uart   *pl011
	irq    *pl011IRQ
}

// New returns a Pico / Pico 2 HAL implementation.
//
// Trace: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// Echo: UART1 on GP4 (TX) / GP5 (RX), driven at register level by the
// interrupt handler.
func New() HAL {
	trace := machine.UART0
	trace.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &tinyGoHAL{
		logger: &uartLogger{uart: trace},
		led:    &pinLED{pin: ledPin},
		uart:   newPL011(machine.GP4, machine.GP5),
		irq:    newPL011IRQ(),
	}
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) LED() LED         { return h.led }
func (h *tinyGoHAL) Time() Time       { return tinyGoTime{} }
func (h *tinyGoHAL) UART() UART       { return h.uart }
func (h *tinyGoHAL) UARTIRQ() IRQ     { return h.irq }
func (h *tinyGoHAL) Display() Display { return nil }

type tinyGoTime struct{}

func (tinyGoTime) Delay(d time.Duration) { time.Sleep(d) }

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }
