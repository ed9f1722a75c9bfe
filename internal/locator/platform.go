package locator

import "path/filepath"

// Profile captures the per-OS path tables consumed by the Locator and
// the Supervisor, so platform differences stay data instead of
// scattered GOOS branches.
type Profile struct {
	OS               string
	BatchExt         string
	ChromiumSubPaths []string
	WellKnownChrome  []string
	GroupKill        bool
}

func DefaultProfile(goos string) Profile {
	switch goos {
	case "windows":
		return Profile{
			OS:       "windows",
			BatchExt: ".cmd",
			ChromiumSubPaths: []string{
				filepath.Join("chrome-win", "chrome.exe"),
				filepath.Join("chrome-win64", "chrome.exe"),
			},
			WellKnownChrome: []string{
				`C:\Program Files\Google\Chrome\Application\chrome.exe`,
				`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
				`C:\Program Files\Chromium\Application\chrome.exe`,
			},
			GroupKill: false,
		}
	case "darwin":
		return Profile{
			OS: "darwin",
			ChromiumSubPaths: []string{
				filepath.Join("chrome-mac", "Chromium.app", "Contents", "MacOS", "Chromium"),
			},
			GroupKill: true,
		}
	default:
		return Profile{
			OS: goos,
			ChromiumSubPaths: []string{
				filepath.Join("chrome-linux", "chrome"),
			},
			GroupKill: true,
		}
	}
}
