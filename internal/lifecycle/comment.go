package lifecycle

// Comment returns the master's verdict on a served ball.
func Comment(s Score) string {
	switch {
	case s.Final >= 95:
		return "..."
	case s.CookLevel > 1.2:
		return "The burn... I will not make excuses."
	case s.CookLevel < 0.8:
		return "The heat is insufficient."
	case s.Quality < 0.5:
		return "This is not a sphere. It is a tragedy."
	case s.Final > 80:
		return "Polite movement. It tastes good before eating."
	default:
		return "Continue training."
	}
}
