// Package colors names the handful of colors the loaders and demos share. Scene files refer to
// them by name through ByName.
package colors

import (
	"strings"

	"github.com/solarlune/tetragl"
)

func White() tetragl.Color { return tetragl.NewColor(1, 1, 1, 1) }

func Black() tetragl.Color { return tetragl.NewColor(0, 0, 0, 1) }

// LightGray and DarkGray are the default clear and ambient tones.
func LightGray() tetragl.Color { return tetragl.NewColor(0.8, 0.8, 0.8, 1) }

func DarkGray() tetragl.Color { return tetragl.NewColor(0.2, 0.2, 0.2, 1) }

func Red() tetragl.Color { return tetragl.NewColor(1, 0, 0, 1) }

// Orange is the usual lamp tint.
func Orange() tetragl.Color { return tetragl.NewColor(1, 0.5, 0, 1) }

func SkyBlue() tetragl.Color { return tetragl.NewColor(0, 0.5, 1, 1) }

var byName = map[string]func() tetragl.Color{
	"white":     White,
	"black":     Black,
	"lightgray": LightGray,
	"darkgray":  DarkGray,
	"red":       Red,
	"orange":    Orange,
	"skyblue":   SkyBlue,
}

// ByName returns the color with the given name, ignoring case, spaces and underscores ("Sky Blue",
// "sky_blue" and "skyblue" are all SkyBlue()). The boolean is false if there's no such color.
func ByName(name string) (tetragl.Color, bool) {
	name = strings.NewReplacer(" ", "", "_", "").Replace(strings.ToLower(name))
	if fn, ok := byName[name]; ok {
		return fn(), true
	}
	return tetragl.Color{}, false
}
