package model

type state int

const (
	DefaultState state = iota
	ExpectingLotInput
	ExpectingWatchInput
	ExpectingAlertInput
	ExpectingPostText
)

type Session struct {
	State state
}
