package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

func decodeInputEvent(buf []byte) (inputEvent, error) {
	var ev inputEvent
	if len(buf) < inputEventSize {
		return ev, fmt.Errorf("short input event: %d bytes", len(buf))
	}
	err := binary.Read(bytes.NewReader(buf[:inputEventSize]), binary.LittleEndian, &ev)
	return ev, err
}

// keyPress maps a volume key press or auto-repeat to a Press. Releases and
// every other key are ignored.
func keyPress(ev inputEvent) (Press, bool) {
	if ev.Type != EV_KEY {
		return Press{}, false
	}
	if ev.Value != evValuePress && ev.Value != evValueRepeat {
		return Press{}, false
	}

	switch ev.Code {
	case KEY_VOLUMEUP:
		return Press{Direction: DirectionUp, Source: SourceKeys}, true
	case KEY_VOLUMEDOWN:
		return Press{Direction: DirectionDown, Source: SourceKeys}, true
	default:
		return Press{}, false
	}
}
