package trackbar

// SliderController is a hardware source of slider movements
type SliderController interface {
	Start() error
	Stop()
	SubscribeToSliderMoveEvents() chan SliderMoveEvent
}

// SliderMoveEvent represents a single hardware slider move
type SliderMoveEvent struct {
	SliderID     int
	PercentValue float32
}
