package mockapi

import (
	"fmt"

	"github.com/fatih/color"
)

var methodColours = map[string]*color.Color{
	"GET":    color.New(color.FgGreen),
	"POST":   color.New(color.FgBlue),
	"PUT":    color.New(color.FgCyan),
	"DELETE": color.New(color.FgYellow),
	"PATCH":  color.New(color.FgMagenta),
}

var otherMethod = color.New(color.FgHiBlack)

// colourMethod pads method to a fixed width for the route table.
func colourMethod(method string) string {
	c, ok := methodColours[method]
	if !ok {
		c = otherMethod
	}
	return c.Sprint(fmt.Sprintf("%-7s", method))
}
