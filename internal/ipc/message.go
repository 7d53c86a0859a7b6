// Package ipc defines the message shapes and client capability exchanged
// between rfclientd and the central controller. Spec.md explicitly puts
// the wire transport and serialization out of scope ("assumed parsable");
// grounded on the JSONL discriminated-message idiom in
// grimm-is-glacic/internal/protocol, this package substitutes
// encoding/json for the original's BSON since no BSON library appears
// anywhere in the dependency surface available to this module.
package ipc

import (
	"encoding/json"
	"net"

	"rfclientd/internal/flowmod"
)

// MessageType discriminates the outbound and inbound envelope payloads.
type MessageType string

const (
	MsgPortRegister MessageType = "port_register"
	MsgRouteMod     MessageType = "route_mod"
	MsgPortConfig   MessageType = "port_config"
)

// OperationID enumerates the PORT_CONFIG operations the controller can
// send, per spec.md 4.9.
type OperationID int

const (
	PCTMapRequest OperationID = iota
	PCTReset
	PCTMapSuccess
	PCTRouteModAck
)

func (o OperationID) String() string {
	switch o {
	case PCTMapRequest:
		return "PCT_MAP_REQUEST"
	case PCTReset:
		return "PCT_RESET"
	case PCTMapSuccess:
		return "PCT_MAP_SUCCESS"
	case PCTRouteModAck:
		return "PCT_ROUTEMOD_ACK"
	default:
		return "PCT_UNKNOWN"
	}
}

// PortRegister announces a physical interface to the controller at
// startup, per spec.md 4.1.
type PortRegister struct {
	VMID uint64           `json:"vm_id"`
	Port uint32           `json:"port"`
	MAC  net.HardwareAddr `json:"mac"`
}

// RouteMod carries one outbound flow-mod.
type RouteMod struct {
	VMID uint64          `json:"vm_id"`
	Mod  flowmod.FlowMod `json:"mod"`
}

// PortConfig is the only inbound message shape, per spec.md 4.9.
type PortConfig struct {
	VMPort      uint32      `json:"vm_port"`
	OperationID OperationID `json:"operation_id"`
}

// Envelope is the wire container for every message, discriminated by
// Type, following grimm-is-glacic/internal/protocol's Message shape. ID
// is a fresh uuid.New().String() per outbound envelope, the idiom
// grimm-is-glacic/internal/device/manager.go uses to tag its own events.
// Inbound PortConfig acks carry no ID, so nothing matches an ack to the
// envelope it retires.
type Envelope struct {
	Type MessageType     `json:"type"`
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body"`
}
