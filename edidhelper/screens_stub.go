//go:build !windows && !linux

package edidhelper

// GetScreens 在不支援的平台上僅回傳錯誤，提示使用者改用檔案或 DDC。
func GetScreens() ([]*Screen, error) {
	return nil, ErrUnsupported
}
