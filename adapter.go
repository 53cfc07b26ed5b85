package frameloop

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// AdapterInfo describes the selected GPU adapter.
type AdapterInfo struct {
	Name       string
	Vendor     string
	Driver     string
	DeviceType gputypes.DeviceType
	Backend    gputypes.Backend
}

// String returns a human-readable description of the adapter.
func (a AdapterInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", a.Name, a.DeviceType, a.Backend)
}

func adapterInfoFrom(info gputypes.AdapterInfo) AdapterInfo {
	return AdapterInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		Driver:     info.Driver,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
	}
}

// adapterType maps a HAL device type onto the gpucontext classification.
func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// deviceRank orders device types for selection; lower wins.
func deviceRank(t gputypes.DeviceType, power gputypes.PowerPreference) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		if power == gputypes.PowerPreferenceLowPower {
			return 1
		}
		return 0
	case gputypes.DeviceTypeIntegratedGPU:
		if power == gputypes.PowerPreferenceLowPower {
			return 0
		}
		return 1
	case gputypes.DeviceTypeVirtualGPU:
		return 2
	case gputypes.DeviceTypeCPU:
		return 3
	default:
		return 4
	}
}

// selectAdapter picks the adapter to open. Only adapters that can present
// to surface are considered. Among those the best device rank wins and
// ties go to the adapter enumerated first, so the choice is deterministic
// for a given enumeration.
func selectAdapter(adapters []hal.ExposedAdapter, surface hal.Surface, power gputypes.PowerPreference) (int, *hal.SurfaceCapabilities, error) {
	if len(adapters) == 0 {
		return -1, nil, fmt.Errorf("%w: no adapters enumerated", ErrDeviceUnavailable)
	}

	best := -1
	bestRank := 0
	var bestCaps *hal.SurfaceCapabilities
	for i := range adapters {
		caps := adapters[i].Adapter.SurfaceCapabilities(surface)
		if caps == nil || len(caps.Formats) == 0 {
			slogger().Debug("adapter cannot present to surface", "adapter", adapters[i].Info.Name)
			continue
		}
		rank := deviceRank(adapters[i].Info.DeviceType, power)
		if best < 0 || rank < bestRank {
			best, bestRank, bestCaps = i, rank, caps
		}
	}
	if best < 0 {
		return -1, nil, fmt.Errorf("%w: none of %d adapters supports the surface", ErrDeviceUnavailable, len(adapters))
	}
	return best, bestCaps, nil
}
