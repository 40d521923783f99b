// Package strip provides strip drivers for the local sink: an in-memory
// Buffer, an NRZ driver for WS2812-class strips on SPI, and a Terminal
// renderer for hosts without LEDs.
package strip
