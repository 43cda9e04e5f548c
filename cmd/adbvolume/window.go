package main

// Button control IDs, delivered in WM_COMMAND.
const (
	idButtonUp   = 1
	idButtonDown = 2
)

// button is a push button at a fixed client-area position.
type button struct {
	ID        int
	Label     string
	Direction Direction
	X, Y      int
	W, H      int
}

var windowButtons = []button{
	{ID: idButtonUp, Label: "Volume +", Direction: DirectionUp, X: 30, Y: 30, W: 80, H: 40},
	{ID: idButtonDown, Label: "Volume -", Direction: DirectionDown, X: 130, Y: 30, W: 80, H: 40},
}

func buttonDirection(id int) (Direction, bool) {
	for _, b := range windowButtons {
		if b.ID == id {
			return b.Direction, true
		}
	}
	return 0, false
}

// windowOrigin places a window of the configured size near the bottom-right
// corner of a screen, clear of the taskbar.
func windowOrigin(screenW, screenH int, cfg WindowConfig) (x, y int) {
	return screenW - cfg.Width - cfg.RightMargin, screenH - cfg.Height - cfg.BottomMargin
}
