package models

// Group is the requests sharing one issuing body, in collection order.
type Group struct {
	IssuingBody string
	Requests    []CertificateRequest
}

// Groups is ordered by first appearance of each issuing body in the collection.
type Groups []Group

// Total is the number of requests across all groups.
func (g Groups) Total() int {
	n := 0
	for _, group := range g {
		n += len(group.Requests)
	}
	return n
}

// Find returns the group for body.
func (g Groups) Find(body string) (Group, bool) {
	for _, group := range g {
		if group.IssuingBody == body {
			return group, true
		}
	}
	return Group{}, false
}

// Snapshot is a consistent view of the store taken under one lock.
// Version increases on every mutation, including FinishLoading.
type Snapshot struct {
	Version      uint64
	Loading      bool
	Requests     []CertificateRequest
	PendingCount int
}

// GroupRequests partitions requests by issuing body in first-appearance order.
func GroupRequests(requests []CertificateRequest) Groups {
	index := make(map[string]int)
	var groups Groups
	for _, r := range requests {
		i, ok := index[r.IssuingBody]
		if !ok {
			i = len(groups)
			index[r.IssuingBody] = i
			groups = append(groups, Group{IssuingBody: r.IssuingBody})
		}
		groups[i].Requests = append(groups[i].Requests, r)
	}
	return groups
}

// CountPending counts requests in StatusPending.
func CountPending(requests []CertificateRequest) int {
	n := 0
	for _, r := range requests {
		if r.Status == StatusPending {
			n++
		}
	}
	return n
}
