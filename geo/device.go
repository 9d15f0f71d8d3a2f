package geo

import (
	"strings"

	"github.com/mssola/useragent"
	"github.com/telecare/auth-server/internal/utils"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// ParseDevice classifies a raw user-agent string.
func ParseDevice(raw string) Device {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Device{}
	}

	ua := useragent.New(raw)
	var d Device

	if name, version := ua.Browser(); name != "" {
		d.Browser = utils.Ptr(strings.TrimSpace(name + " " + version))
	}
	if os := ua.OS(); os != "" {
		d.OS = utils.Ptr(os)
	}
	if model := ua.Model(); model != "" {
		d.Model = utils.Ptr(model)
	}
	d.Type = utils.Ptr(deviceType(ua, raw))
	if cpu := cpuArchitecture(raw); cpu != "" {
		d.CPU = utils.Ptr(cpu)
	}
	return d
}

func deviceType(ua *useragent.UserAgent, raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case ua.Bot():
		return DeviceBot
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		return DeviceTablet
	case ua.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

var cpuTokens = []struct {
	token string
	arch  string
}{
	{"x86_64", "amd64"},
	{"win64", "amd64"},
	{"x64", "amd64"},
	{"amd64", "amd64"},
	{"aarch64", "arm64"},
	{"arm64", "arm64"},
	{"armv7", "arm"},
	{"armv8", "arm64"},
	{"i686", "ia32"},
	{"i386", "ia32"},
}

func cpuArchitecture(raw string) string {
	lower := strings.ToLower(raw)
	for _, c := range cpuTokens {
		if strings.Contains(lower, c.token) {
			return c.arch
		}
	}
	return ""
}
