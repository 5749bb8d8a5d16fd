package viewmodel

// DifficultyOption is a choice in the difficulty selector.
type DifficultyOption struct {
	Value    string
	Label    string
	Pairs    int
	Seconds  int
	Selected bool
}

// HomePage holds data for the landing page.
type HomePage struct {
	Title        string
	Theme        string
	Difficulties []DifficultyOption
}

// GamePage holds data for the main game page template.
type GamePage struct {
	Title        string
	Theme        string
	SessionID    string
	Difficulties []DifficultyOption
	Status       StatusFragment
	Board        BoardFragment
	Outcome      OutcomeFragment
}

// StatusFragment holds the counters panel.
type StatusFragment struct {
	SessionID  string
	Difficulty string
	Clicks     int
	Matched    int
	Remaining  int
	TimeLeft   int
	Powerups   int
	Active     bool
	Loading    bool
}

// CardView is one slot on the board.
type CardView struct {
	Position int
	FaceUp   bool
	Matched  bool
	Name     string
	Image    string
}

// BoardFragment holds the card grid.
type BoardFragment struct {
	SessionID  string
	Cards      []CardView
	Columns    int
	Active     bool
	Loading    bool
	LoadFailed bool
	BackImage  string
}

// OutcomeFragment announces how the session ended. Empty Outcome renders nothing.
type OutcomeFragment struct {
	SessionID string
	Outcome   string
	Message   string
}
