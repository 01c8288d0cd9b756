package broken

type Good struct{}

type Bad struct {
	X Undefined
}
