package edidhelper

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// MaxEDIDSize 是單一 EDID 檔案讀取的上限，超出的部分會被忽略。
const MaxEDIDSize = 4096

// ErrUnsupported 說明目前平台無法列舉顯示器。
var ErrUnsupported = errors.New("display enumeration is not supported on this platform")

// Screen 描述一個可取得 EDID 的來源（檔案、系統顯示器或 DDC 匯流排）。
type Screen struct {
	Name        string // 顯示用名稱，例如 card0-HDMI-A-1 或 \\.\DISPLAY1
	Description string // 顯示卡或連接埠描述
	DeviceID    string
	Raw         []byte
}

// LoadFile 讀取整個檔案到固定大小的緩衝區，回傳實際讀到的內容。
func LoadFile(path string) ([]byte, error) {
	return LoadFileLimit(path, MaxEDIDSize)
}

// LoadFileLimit 與 LoadFile 相同，但可指定讀取上限。
func LoadFileLimit(path string, limit int) ([]byte, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid read limit %d", limit)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, limit)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	slog.Debug("loaded edid file", "path", path, "bytes", n)
	return buf[:n], nil
}
