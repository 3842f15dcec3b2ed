package monitor

import "errors"

var errRateLimited = errors.New("monitor: rate limit exceeded")

var errNoInstances = errors.New("monitor: no instances registered for this name")
