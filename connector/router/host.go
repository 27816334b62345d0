package router

// Host identifies a target device and the credentials resource used to reach
// it over SSH. A localhost URL executes commands locally.
type Host struct {
	URL         string `json:"url,omitempty" description:"device URL, e.g. ssh://fw1.example.com"`
	Credentials string `json:"credentials,omitempty" description:"scy credentials resource name"`
}

func (h *Host) Init() {
	if h.URL == "" {
		h.URL = "ssh://localhost/"
	}
}
