package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Selection is the resolved capture source. Warning is set when the
// configured input was unusable and the fallback was taken.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// SelectDevice resolves audio.input and audio.fallback against live devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	primary, err := pick(devices, "audio.input", input)
	if err != nil {
		return Selection{}, err
	}
	reason := unusable(primary)
	if reason == "" {
		return Selection{Device: primary}, nil
	}

	alt, err := pick(devices, "audio.fallback", fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input %q is %s and no usable fallback: %w", primary.ID, reason, err)
	}
	if altReason := unusable(alt); altReason != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", alt.ID, altReason)
	}
	return Selection{
		Device:   alt,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

// pick finds the first device matching pref; "" and "default" mean the
// server default source.
func pick(devices []Device, key string, pref string) (Device, error) {
	term := strings.ToLower(strings.TrimSpace(pref))
	if term == "" || term == "default" {
		for _, d := range devices {
			if d.Default {
				return d, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}
	for _, d := range devices {
		if deviceMatches(d, term) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%s %q did not match any device", key, pref)
}

func unusable(d Device) string {
	switch {
	case d.Muted:
		return "muted"
	case !d.Available:
		return "unavailable"
	}
	return ""
}

// deviceMatches reports whether term occurs in the device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}
