package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixFrame          = "frame"
	PrefixElement        = "el"
	PrefixComponentGroup = "cgrp"
	PrefixElementGroup   = "egrp"
	PrefixComponent      = "comp"
	PrefixInstance       = "inst"
	PrefixMasterElement  = "mel"
	PrefixSession        = "sess"
	PrefixSnapshot       = "snap"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewFrameID() string          { return New(PrefixFrame) }
func NewElementID() string        { return New(PrefixElement) }
func NewComponentGroupID() string { return New(PrefixComponentGroup) }
func NewElementGroupID() string   { return New(PrefixElementGroup) }
func NewComponentID() string      { return New(PrefixComponent) }
func NewInstanceID() string       { return New(PrefixInstance) }
func NewMasterElementID() string  { return New(PrefixMasterElement) }
func NewSessionID() string        { return New(PrefixSession) }
func NewSnapshotID() string       { return New(PrefixSnapshot) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
