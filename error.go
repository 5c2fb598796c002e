package idm

import (
	"fmt"
)

// Transport errors (§7 "Transport errors").
var ErrScanFailed = fmt.Errorf("scan failed")
var ErrConnectFailed = fmt.Errorf("connect failed")
var ErrWriteFailed = fmt.Errorf("characteristic write failed")
var ErrDisconnected = fmt.Errorf("disconnected mid-transfer")

// Discovery errors (§7 "Discovery errors").
var ErrSignatureMissing = fmt.Errorf("manufacturer payload missing TR\\0p/TR\\0q signature")
var ErrTruncatedManufacturerPayload = fmt.Errorf("manufacturer payload truncated")
var ErrAdTlvGuardViolation = fmt.Errorf("AD-TLV record length exceeds 31 bytes")

// Transfer errors (§7 "Transfer errors").
var ErrCoordinatorBusy = fmt.Errorf("transfer already in progress")
var ErrTransferCancelled = fmt.Errorf("transfer cancelled")

// ResolutionError is returned by the device profile resolver (§4.3) when
// a shape byte cannot be turned into a led_type without caller input.
type ResolutionError struct {
	Kind  string // "AmbiguousShape" | "UnknownShape" | "UnresolvedTextPath"
	Shape int8
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case "AmbiguousShape":
		return fmt.Sprintf("ambiguous shape 0x%02x requires caller resolution", uint8(e.Shape))
	case "UnknownShape":
		return fmt.Sprintf("unknown shape byte 0x%02x", uint8(e.Shape))
	default:
		return fmt.Sprintf("unresolved text path for shape 0x%02x", uint8(e.Shape))
	}
}

func AmbiguousShapeError(shape int8) error {
	return &ResolutionError{Kind: "AmbiguousShape", Shape: shape}
}

func UnknownShapeError(shape int8) error {
	return &ResolutionError{Kind: "UnknownShape", Shape: shape}
}

// CodecError covers §7 "Codec errors".
type CodecError struct {
	Kind   string // "PayloadTooLarge" | "InvalidField"
	Family Family
	Actual int
	Max    int
	Field  string
}

func (e *CodecError) Error() string {
	if e.Kind == "PayloadTooLarge" {
		return fmt.Sprintf("%s payload too large: %d bytes exceeds max %d", e.Family, e.Actual, e.Max)
	}
	return fmt.Sprintf("%s: invalid field %s", e.Family, e.Field)
}

// TransferError covers §7 "Transfer errors" that carry structured
// context (family, chunk index, device-reported code).
type TransferError struct {
	Kind       string // "AckTimeout" | "DeviceReportedError" | "InvalidAck" | "Cancelled" | "Busy"
	Family     Family
	ChunkIndex int
	Code       byte
	Payload    []byte
}

func (e *TransferError) Error() string {
	switch e.Kind {
	case "AckTimeout":
		return fmt.Sprintf("%s: ack timeout awaiting chunk %d", e.Family, e.ChunkIndex)
	case "DeviceReportedError":
		return fmt.Sprintf("%s: device reported error code 0x%02x", e.Family, e.Code)
	case "InvalidAck":
		return fmt.Sprintf("%s: invalid ack payload % x", e.Family, e.Payload)
	case "Cancelled":
		return fmt.Sprintf("%s: transfer cancelled", e.Family)
	default:
		return fmt.Sprintf("%s: coordinator busy", e.Family)
	}
}

func (e *TransferError) Is(target error) bool {
	if target == ErrTransferCancelled {
		return e.Kind == "Cancelled"
	}
	if target == ErrCoordinatorBusy {
		return e.Kind == "Busy"
	}
	return false
}
