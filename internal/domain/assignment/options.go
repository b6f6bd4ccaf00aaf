package assignment

// Option applies a configuration option to an Assignment.
type Option func(*Assignment)

// WithSize sets the number of ranked positions. Non-positive values are ignored.
func WithSize(n int) Option {
	return func(a *Assignment) {
		if n > 0 {
			a.size = n
		}
	}
}
