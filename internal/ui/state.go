// Package ui modela la navegacion de la app como un valor finito.
package ui

type Screen int

const (
	ScreenSignIn Screen = iota
	ScreenSignUp
	ScreenChat
)

func (s Screen) String() string {
	switch s {
	case ScreenSignUp:
		return "sign_up"
	case ScreenChat:
		return "chat"
	}
	return "sign_in"
}

type Overlay int

const (
	OverlayNone Overlay = iota
	OverlaySidePanel
	OverlayAttachMenu
)

func (o Overlay) String() string {
	switch o {
	case OverlaySidePanel:
		return "side_panel"
	case OverlayAttachMenu:
		return "attach_menu"
	}
	return "none"
}

type Event int

const (
	EventShowSignUp Event = iota
	EventShowSignIn
	EventSignedIn
	EventSignedOut
	EventToggleSidePanel
	EventOpenAttachMenu
	EventCloseOverlay
	EventImagePicked
	EventPickCancelled
)

// State es la pantalla actual mas el overlay. Los overlays solo existen en Chat.
type State struct {
	Screen  Screen
	Overlay Overlay
}

// Initial devuelve el estado de arranque segun haya sesion restaurada o no.
func Initial(signedIn bool) State {
	if signedIn {
		return State{Screen: ScreenChat}
	}
	return State{Screen: ScreenSignIn}
}

// Apply devuelve el estado siguiente. Si el evento no aplica, devuelve s y false.
func (s State) Apply(ev Event) (State, bool) {
	switch ev {
	case EventSignedOut:
		if s.Screen != ScreenChat {
			return s, false
		}
		return State{Screen: ScreenSignIn}, true
	case EventSignedIn:
		if s.Screen == ScreenChat {
			return s, false
		}
		return State{Screen: ScreenChat}, true
	case EventShowSignUp:
		if s.Screen != ScreenSignIn {
			return s, false
		}
		return State{Screen: ScreenSignUp}, true
	case EventShowSignIn:
		if s.Screen != ScreenSignUp {
			return s, false
		}
		return State{Screen: ScreenSignIn}, true
	}

	if s.Screen != ScreenChat {
		return s, false
	}
	switch ev {
	case EventToggleSidePanel:
		switch s.Overlay {
		case OverlayNone:
			return State{Screen: ScreenChat, Overlay: OverlaySidePanel}, true
		case OverlaySidePanel:
			return State{Screen: ScreenChat}, true
		}
	case EventOpenAttachMenu:
		if s.Overlay == OverlayNone {
			return State{Screen: ScreenChat, Overlay: OverlayAttachMenu}, true
		}
	case EventCloseOverlay:
		if s.Overlay != OverlayNone {
			return State{Screen: ScreenChat}, true
		}
	case EventImagePicked, EventPickCancelled:
		if s.Overlay == OverlayAttachMenu {
			return State{Screen: ScreenChat}, true
		}
	}
	return s, false
}

func (s State) String() string {
	if s.Overlay == OverlayNone {
		return s.Screen.String()
	}
	return s.Screen.String() + "+" + s.Overlay.String()
}
