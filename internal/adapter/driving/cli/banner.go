package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/lhtools/tb-pivot-export-go/pkg/version"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
         /$$$$$$$$ /$$$$$$$        /$$$$$$$  /$$                        /$$
        |__  $$__/| $$__  $$      | $$__  $$|__/                       | $$
           | $$   | $$  \ $$      | $$  \ $$ /$$ /$$    /$$  /$$$$$$  /$$$$$$
           | $$   | $$$$$$$       | $$$$$$$/| $$|  $$  /$$/ /$$__  $$|_  $$_/
           | $$   | $$__  $$      | $$____/ | $$ \  $$/$$/ | $$  \ $$  | $$
           | $$   | $$  \ $$      | $$      | $$  \  $$$/  | $$  | $$  | $$ /$$
           | $$   | $$$$$$$/      | $$      | $$   \  $/   |  $$$$$$/  |  $$$$/
           |__/   |_______/       |__/      |__/    \_/     \______/    \___/
        `
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(cyan(banner))

	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("ThingsBoard Pivot Export CLI (v%s)", formattedVersion)))
}
