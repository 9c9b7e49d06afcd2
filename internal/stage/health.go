package stage

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string `json:"name" yaml:"name"`
	Ready  bool   `json:"ready" yaml:"ready"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// FromError is Healthy when err is nil and Unhealthy with the error text
// otherwise.
func FromError(name string, err error) Health {
	if err == nil {
		return Healthy(name)
	}
	return Unhealthy(name, err.Error())
}
