package linear

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// DefaultMaxCondition is the condition number above which the normal
// equations are treated as singular.
const DefaultMaxCondition = 1e12

// WithAlpha adds an L2 penalty alpha·‖w‖² on the coefficients (not the
// intercept). A small positive alpha keeps collinear feature sets solvable.
func WithAlpha(alpha float64) Option {
	return func(lr *LinearRegression) {
		lr.alpha = alpha
	}
}

// WithMaxCondition sets the condition number above which the normal
// equations are treated as singular (default DefaultMaxCondition).
func WithMaxCondition(c float64) Option {
	return func(lr *LinearRegression) {
		lr.maxCond = c
	}
}
