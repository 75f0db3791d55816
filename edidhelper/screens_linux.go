//go:build linux

package edidhelper

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// drmRoot 為 DRM 子系統在 sysfs 的位置，測試時可替換。
var drmRoot = "/sys/class/drm"

// GetScreens 掃描 /sys/class/drm 下已連接的輸出埠並讀出 EDID。
func GetScreens() ([]*Screen, error) {
	entries, err := os.ReadDir(drmRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrUnsupported
		}
		return nil, err
	}

	var (
		screens []*Screen
		lastErr error
	)
	for _, entry := range entries {
		name := entry.Name()
		// 只處理 cardN-<connector> 形式的連接埠節點。
		card, connector, ok := strings.Cut(name, "-")
		if !ok || !strings.HasPrefix(card, "card") {
			continue
		}
		dir := filepath.Join(drmRoot, name)

		status, err := os.ReadFile(filepath.Join(dir, "status"))
		if err == nil && strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		raw, err := LoadFile(filepath.Join(dir, "edid"))
		if err != nil {
			slog.Debug("edid not readable", "connector", name, "error", err)
			lastErr = err
			continue
		}
		if len(raw) == 0 {
			// 已連接但驅動程式尚未提供 EDID。
			lastErr = errors.New(name + ": edid data is empty")
			continue
		}
		screens = append(screens, &Screen{
			Name:        name,
			Description: connector,
			DeviceID:    dir,
			Raw:         raw,
		})
	}

	sort.Slice(screens, func(i, j int) bool {
		return screens[i].Name < screens[j].Name
	})
	if len(screens) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return screens, nil
}
