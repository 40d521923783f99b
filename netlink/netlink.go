// Package netlink is the boundary to network association. The daemon calls
// Link.Connect before opening the command channel.
package netlink

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// Link associates the controller with a network.
type Link interface {
	Connect(ctx context.Context, ssid, psk string) error
}

// LinkFunc adapts a function to Link.
type LinkFunc func(ctx context.Context, ssid, psk string) error

// Connect calls f.
func (f LinkFunc) Connect(ctx context.Context, ssid, psk string) error {
	return f(ctx, ssid, psk)
}

// Unmanaged is a Link for hosts whose network is configured by the OS. It
// does not associate; Connect waits until a non-loopback interface is up
// with an address, polling every Poll.
type Unmanaged struct {
	Logger *zap.Logger
	// Interfaces lists interfaces; nil means net.Interfaces.
	Interfaces func() ([]Interface, error)
	Poll       time.Duration
}

// Interface is the part of net.Interface that Unmanaged inspects.
type Interface struct {
	Name  string
	Addrs int
	Up    bool
	Loop  bool
}

// Connect implements Link.
func (u *Unmanaged) Connect(ctx context.Context, ssid, _ string) error {
	log := u.Logger
	if log == nil {
		log = zap.NewNop()
	}
	list := u.Interfaces
	if list == nil {
		list = systemInterfaces
	}
	poll := u.Poll
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	log.Info("waiting for network", zap.String("ssid", ssid))
	for {
		ifaces, err := list()
		if err != nil {
			return fmt.Errorf("list interfaces: %w", err)
		}
		for _, i := range ifaces {
			if i.Up && !i.Loop && i.Addrs > 0 {
				log.Info("network up", zap.String("interface", i.Name))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("network %q not available: %w", ssid, ctx.Err())
		case <-time.After(poll):
		}
	}
}

func systemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, i := range ifaces {
		addrs, err := i.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Interface{
			Name:  i.Name,
			Up:    i.Flags&net.FlagUp != 0,
			Loop:  i.Flags&net.FlagLoopback != 0,
			Addrs: len(addrs),
		})
	}
	return out, nil
}
