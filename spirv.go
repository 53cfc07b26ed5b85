// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frameloop

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/gogpu/naga/spirv"
)

// spirvHeaderWords is the size of the SPIR-V module header.
const spirvHeaderWords = 5

// spirvEntryPoint is one OpEntryPoint of a module.
type spirvEntryPoint struct {
	model      spirv.ExecutionModel
	name       string
	interfaces []uint32
}

// spirvModule is the subset of a SPIR-V module needed to check it against
// a pipeline: its entry points and the storage class and location of its
// interface variables.
type spirvModule struct {
	words       []uint32
	entryPoints []spirvEntryPoint
	storage     map[uint32]spirv.StorageClass
	locations   map[uint32]uint32
}

// parseSPIRV decodes a SPIR-V binary. Both byte orders are accepted; the
// returned words are in host order.
func parseSPIRV(blob []byte) (*spirvModule, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(blob))
	}
	if len(blob) < spirvHeaderWords*4 {
		return nil, fmt.Errorf("length %d is shorter than the module header", len(blob))
	}

	words := make([]uint32, len(blob)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(blob[i*4:])
	}
	switch words[0] {
	case spirv.MagicNumber:
	case bits.ReverseBytes32(spirv.MagicNumber):
		for i := range words {
			words[i] = bits.ReverseBytes32(words[i])
		}
	default:
		return nil, fmt.Errorf("bad magic number %#08x", words[0])
	}

	m := &spirvModule{
		words:     words,
		storage:   make(map[uint32]spirv.StorageClass),
		locations: make(map[uint32]uint32),
	}
	for pc := spirvHeaderWords; pc < len(words); {
		count := int(words[pc] >> 16)
		op := spirv.OpCode(words[pc] & 0xFFFF)
		if count == 0 || pc+count > len(words) {
			return nil, fmt.Errorf("truncated instruction at word %d", pc)
		}
		operands := words[pc+1 : pc+count]
		switch op {
		case spirv.OpEntryPoint:
			ep, err := decodeEntryPoint(operands)
			if err != nil {
				return nil, fmt.Errorf("word %d: %w", pc, err)
			}
			m.entryPoints = append(m.entryPoints, ep)
		case spirv.OpDecorate:
			if len(operands) >= 3 && spirv.Decoration(operands[1]) == spirv.DecorationLocation {
				m.locations[operands[0]] = operands[2]
			}
		case spirv.OpVariable:
			if len(operands) >= 3 {
				m.storage[operands[1]] = spirv.StorageClass(operands[2])
			}
		}
		pc += count
	}
	if len(m.entryPoints) == 0 {
		return nil, errors.New("module has no entry point")
	}
	return m, nil
}

func decodeEntryPoint(operands []uint32) (spirvEntryPoint, error) {
	if len(operands) < 3 {
		return spirvEntryPoint{}, errors.New("short OpEntryPoint")
	}
	name, n, ok := decodeLiteralString(operands[2:])
	if !ok {
		return spirvEntryPoint{}, errors.New("unterminated entry point name")
	}
	return spirvEntryPoint{
		model:      spirv.ExecutionModel(operands[0]),
		name:       name,
		interfaces: operands[2+n:],
	}, nil
}

// decodeLiteralString reads a nul-terminated UTF-8 literal packed four bytes
// per word, low byte first. It returns the string and the words consumed.
func decodeLiteralString(words []uint32) (string, int, bool) {
	var buf []byte
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return string(buf), i + 1, true
			}
			buf = append(buf, b)
		}
	}
	return "", 0, false
}

// entryPoint returns the entry point with the given model and name.
func (m *spirvModule) entryPoint(model spirv.ExecutionModel, name string) (spirvEntryPoint, bool) {
	for _, ep := range m.entryPoints {
		if ep.model == model && ep.name == name {
			return ep, true
		}
	}
	return spirvEntryPoint{}, false
}

// inputLocations returns the sorted locations of the entry point's Input
// variables. Built-ins carry no location and are skipped.
func (m *spirvModule) inputLocations(ep spirvEntryPoint) []uint32 {
	var locs []uint32
	for _, id := range ep.interfaces {
		if m.storage[id] != spirv.StorageClassInput {
			continue
		}
		if loc, ok := m.locations[id]; ok {
			locs = append(locs, loc)
		}
	}
	slices.Sort(locs)
	return locs
}

func executionModelName(model spirv.ExecutionModel) string {
	switch model {
	case spirv.ExecutionModelVertex:
		return "vertex"
	case spirv.ExecutionModelFragment:
		return "fragment"
	case spirv.ExecutionModelGLCompute:
		return "compute"
	default:
		return fmt.Sprintf("model %d", uint32(model))
	}
}
