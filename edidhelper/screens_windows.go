//go:build windows

package edidhelper

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const (
	displayDeviceActive = 0x1
	displayEnumPath     = `SYSTEM\CurrentControlSet\Enum\DISPLAY`
)

// DISPLAY_DEVICEW
type displayDevice struct {
	cb           uint32
	DeviceName   [32]uint16
	DeviceString [128]uint16
	StateFlags   uint32
	DeviceID     [128]uint16
	DeviceKey    [128]uint16
}

var procEnumDisplayDevicesW = windows.NewLazySystemDLL("user32.dll").NewProc("EnumDisplayDevicesW")

// GetScreens 列舉啟用中的顯示器，從登錄檔取出對應的原始 EDID。
func GetScreens() ([]*Screen, error) {
	index, err := registryEDIDs()
	if err != nil {
		return nil, err
	}

	var (
		screens []*Screen
		missing []string
	)
	for a := uint32(0); ; a++ {
		adapter, ok := enumDisplayDevices("", a)
		if !ok {
			break
		}
		adapterName := windows.UTF16ToString(adapter.DeviceName[:])

		for m := uint32(0); ; m++ {
			monitor, ok := enumDisplayDevices(adapterName, m)
			if !ok {
				break
			}
			if monitor.StateFlags&displayDeviceActive == 0 {
				continue
			}

			deviceID := strings.TrimSpace(windows.UTF16ToString(monitor.DeviceID[:]))
			raw := lookupEDID(index, deviceID)
			if raw == nil {
				slog.Debug("no registry edid for monitor", "device", deviceID)
				missing = append(missing, deviceID)
				continue
			}
			screens = append(screens, &Screen{
				Name:        adapterName,
				Description: windows.UTF16ToString(monitor.DeviceString[:]),
				DeviceID:    deviceID,
				Raw:         raw,
			})
		}
	}

	if len(missing) > 0 {
		err = fmt.Errorf("edid not found in registry for %s", strings.Join(missing, ", "))
	}
	if len(screens) == 0 {
		return nil, err
	}
	return screens, err
}

func enumDisplayDevices(device string, devNum uint32) (*displayDevice, bool) {
	var dd displayDevice
	dd.cb = uint32(unsafe.Sizeof(dd))

	var devicePtr *uint16
	if device != "" {
		devicePtr, _ = windows.UTF16PtrFromString(device)
	}
	ret, _, _ := procEnumDisplayDevicesW.Call(
		uintptr(unsafe.Pointer(devicePtr)),
		uintptr(devNum),
		uintptr(unsafe.Pointer(&dd)),
		0,
	)
	return &dd, ret != 0
}

// lookupEDID 監視器的 DeviceID 會包含登錄檔實例的 Driver 值。
func lookupEDID(index map[string][]byte, deviceID string) []byte {
	for driver, raw := range index {
		if strings.Contains(deviceID, driver) {
			return raw
		}
	}
	return nil
}

// registryEDIDs 走訪 Enum\DISPLAY\<pnp>\<instance>，以 Driver 值為鍵收集 EDID。
func registryEDIDs() (map[string][]byte, error) {
	root, err := registry.OpenKey(registry.LOCAL_MACHINE, displayEnumPath, registry.READ)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", displayEnumPath, err)
	}
	defer root.Close()

	pnpIDs, err := root.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]byte)
	for _, pnpID := range pnpIDs {
		if err := collectInstances(root, pnpID, index); err != nil {
			slog.Debug("skip registry node", "pnp", pnpID, "error", err)
		}
	}
	if len(index) == 0 {
		return nil, errors.New("edid not found in registry")
	}
	return index, nil
}

func collectInstances(root registry.Key, pnpID string, index map[string][]byte) error {
	pnp, err := registry.OpenKey(root, pnpID, registry.READ)
	if err != nil {
		return err
	}
	defer pnp.Close()

	instances, err := pnp.ReadSubKeyNames(-1)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		driver, raw, err := readInstance(pnp, inst)
		if err != nil {
			continue
		}
		index[driver] = raw
	}
	return nil
}

func readInstance(pnp registry.Key, inst string) (string, []byte, error) {
	key, err := registry.OpenKey(pnp, inst, registry.READ)
	if err != nil {
		return "", nil, err
	}
	defer key.Close()

	driver, _, err := key.GetStringValue("Driver")
	if err != nil {
		return "", nil, err
	}
	params, err := registry.OpenKey(key, "Device Parameters", registry.READ)
	if err != nil {
		return "", nil, err
	}
	defer params.Close()

	raw, _, err := params.GetBinaryValue("EDID")
	if err != nil {
		return "", nil, err
	}
	if len(raw) == 0 || driver == "" {
		return "", nil, errors.New("empty edid")
	}
	return driver, raw, nil
}
