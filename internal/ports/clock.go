package ports

// Clock returns monotonic seconds. Only differences between readings matter.
type Clock func() float64
