package tools

// installHintsFor returns install instructions for tool on goos.
func installHintsFor(tool, goos string) []string {
	switch tool {
	case "python3":
		switch goos {
		case "darwin":
			return []string{"Install Python via Homebrew: brew install python@3.12"}
		case "windows":
			return []string{
				"Python runs inside WSL on Windows: wsl --install",
				"then inside WSL: sudo apt install python3 python3-venv python3-pip",
			}
		default:
			return []string{"Install Python with your distro package manager, e.g. sudo apt install python3 python3-venv python3-pip"}
		}
	case "wine":
		switch goos {
		case "darwin":
			return []string{"Install wine via Homebrew: brew install --cask wine-stable"}
		default:
			return []string{"Install wine with your distro package manager, e.g. sudo apt install wine"}
		}
	case "wsl":
		return []string{"Enable the Windows Subsystem for Linux: wsl --install"}
	}
	return nil
}
