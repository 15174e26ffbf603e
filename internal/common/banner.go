package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner
func PrintBanner(version string) {
	b := banner.New().SetStyle(banner.StyleDouble).SetWidth(60)
	b.PrintTopLine()
	b.PrintCenteredText("PolTrends")
	b.PrintCenteredText("Version " + version)
	b.PrintBottomLine()
}
