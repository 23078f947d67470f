// Package state tracks short text dialogs, such as registration, per user.
// A dialog is a State plus string scratch values; text from a user with an
// open dialog goes to the handler bound to that State.
package state

import tele "gopkg.in/telebot.v4"

type State string

// StateIdle means no dialog is open.
const StateIdle State = ""

// Manager stores dialog state and dispatches text by it.
type Manager interface {
	// Handle binds h to text received while a user is in st.
	Handle(st State, h tele.HandlerFunc)
	ManagerHandler(c tele.Context) error

	SetState(userID int64, st State)
	Current(userID int64) State
	InProgress(userID int64) bool

	SetTemp(userID int64, key, value string)
	GetTemp(userID int64, key string) (string, bool)
	// Clear closes the dialog and drops its scratch values.
	Clear(userID int64)
}
