package pipeline

// Platform supplies the two opaque host labels attached to every result.
type Platform interface {
	Labels() (device, processor string)
}

// StaticPlatform returns fixed labels.
type StaticPlatform struct {
	Device    string
	Processor string
}

// Labels implements Platform.
func (p StaticPlatform) Labels() (string, string) { return p.Device, p.Processor }
