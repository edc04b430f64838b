package chat

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotSender       = errors.New("not the message sender")
)
