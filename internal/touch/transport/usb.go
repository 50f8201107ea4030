package transport

import (
	"context"
	"fmt"

	"github.com/google/gousb"

	"github.com/banshee-data/contact.report/internal/monitoring"
	"github.com/banshee-data/contact.report/internal/touch/grid"
)

// GreenTouch MT foil USB identifiers.
const (
	VendorID  = 0x0547
	ProductID = 0x2001
)

// USBSource reads raw frames from the foil's bulk IN endpoint.
type USBSource struct {
	usbContext   *gousb.Context
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         *gousb.InEndpoint
	closed       bool
}

// OpenUSB finds the first attached foil and claims its frame endpoint.
func OpenUSB() (*USBSource, error) {
	usbCtx := gousb.NewContext()
	src, err := openUSB(usbCtx)
	if err != nil {
		usbCtx.Close()
		return nil, err
	}
	return src, nil
}

func openUSB(usbCtx *gousb.Context) (*USBSource, error) {
	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		return nil, fmt.Errorf("failed to open foil: %w", err)
	}
	if dev == nil {
		return nil, fmt.Errorf("foil %04x:%04x not found", VendorID, ProductID)
	}

	dev.SetAutoDetach(true)

	config, err := dev.Config(1)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		dev.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	// The foil exposes a single bulk IN endpoint carrying whole frames.
	var epDesc *gousb.EndpointDesc
	for _, ep := range iface.Setting.Endpoints {
		if ep.Direction == gousb.EndpointDirectionIn && ep.TransferType == gousb.TransferTypeBulk {
			epDesc = &ep
			break
		}
	}
	if epDesc == nil {
		iface.Close()
		config.Close()
		dev.Close()
		return nil, fmt.Errorf("foil exposes no bulk IN endpoint")
	}

	epIn, err := iface.InEndpoint(epDesc.Number)
	if err != nil {
		iface.Close()
		config.Close()
		dev.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}

	product, _ := dev.Product()
	monitoring.Logf("[transport] opened foil %04x:%04x (%s), endpoint %d, frame size %d",
		VendorID, ProductID, product, epDesc.Number, grid.FrameSize)

	return &USBSource{
		usbContext:   usbCtx,
		usbDevice:    dev,
		usbConfig:    config,
		usbInterface: iface,
		epIn:         epIn,
	}, nil
}

// ReadFrame reads one full frame from the bulk endpoint. A short transfer
// is reported as an error; the caller skips the tick and tries again.
func (s *USBSource) ReadFrame(ctx context.Context, buf []byte) error {
	if s.closed {
		return ErrClosed
	}
	if err := checkFrameBuf(buf); err != nil {
		return err
	}
	n, err := s.epIn.ReadContext(ctx, buf)
	if err != nil {
		return fmt.Errorf("foil read failed: %w", err)
	}
	if n != grid.FrameSize {
		return fmt.Errorf("short foil read: %d of %d bytes", n, grid.FrameSize)
	}
	return nil
}

// Close releases the interface, configuration, device and USB context.
func (s *USBSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.usbInterface != nil {
		s.usbInterface.Close()
	}
	if s.usbConfig != nil {
		s.usbConfig.Close()
	}
	var err error
	if s.usbDevice != nil {
		err = s.usbDevice.Close()
	}
	if s.usbContext != nil {
		if cerr := s.usbContext.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
