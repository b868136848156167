package game

// ActionKind discriminates the gameplay actions a live player can perform.
type ActionKind uint8

const (
	ActionUnknown ActionKind = iota
	ActionMove
	ActionJump
	ActionShoot
	ActionReload
)

// String returns a human-readable action name for logs.
func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionJump:
		return "jump"
	case ActionShoot:
		return "shoot"
	case ActionReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Action is one decoded gameplay command. Optional fields are pointers so
// "absent" and "zero vector" stay distinguishable; the transport layer fills
// in whatever the client sent and Match.HandleAction validates the rest.
type Action struct {
	Kind ActionKind

	// Move and jump updates. Either may be nil; absent fields leave the
	// player's current value untouched.
	Position *Vec3
	Rotation *Vec3

	// Shot geometry. Target takes precedence when both are present.
	Target    *Vec3
	Direction *Vec3

	// Lean is accepted for forward compatibility and currently ignored.
	Lean *float64
}

// validate checks structural soundness before any state is touched.
// It returns ErrBadAction so every caller surfaces the same taxonomy.
func (a Action) validate() error {
	switch a.Kind {
	case ActionMove, ActionJump:
		if a.Position != nil && !a.Position.IsFinite() {
			return ErrBadAction
		}
		if a.Rotation != nil && !a.Rotation.IsFinite() {
			return ErrBadAction
		}
		return nil
	case ActionShoot:
		if a.Target == nil && a.Direction == nil {
			return ErrBadAction
		}
		if a.Target != nil && !a.Target.IsFinite() {
			return ErrBadAction
		}
		if a.Direction != nil && !a.Direction.IsFinite() {
			return ErrBadAction
		}
		return nil
	case ActionReload:
		return nil
	default:
		return ErrBadAction
	}
}
