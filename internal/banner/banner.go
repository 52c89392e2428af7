// Package banner renders the CLI start-up banner.
package banner

import (
	"fmt"

	"github.com/gookit/color"
)

const art = `
  __ _ _ __ | | __/ _| ___  __ _| |_
 / _' | '_ \| |/ / |_ / _ \/ _' | __|
| (_| | |_) |   <|  _|  __/ (_| | |_
 \__,_| .__/|_|\_\_|  \___|\__,_|\__|
      |_|
`

// Banner returns the banner for version. Colors are dropped when the
// terminal does not support them.
func Banner(version string) string {
	title := color.New(color.FgGreen, color.OpBold).Render(art)
	sub := color.New(color.FgGray).Render(fmt.Sprintf("  feature vocabulary & vector encoding  %s", version))
	return title + sub + "\n\n"
}
