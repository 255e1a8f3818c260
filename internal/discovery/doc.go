// Package discovery implements the control-point side of SimpleHome
// discovery.
//
// Searcher multicasts an SSDP M-SEARCH, collects the responses that arrive
// within its timeout and collapses repeats from the same device (by USN,
// then LOCATION host, then responder address). With FetchDescriptions set,
// each LOCATION is downloaded and decoded as a UPnP description document.
//
//	s := discovery.NewSearcher()
//	s.Target = "urn:schemas-upnp-org:device:Basic:1"
//	s.FetchDescriptions = true
//	devices, err := s.Search(ctx)
//
// The package also publishes the description HTTP endpoint over mDNS
// (Advertise) and lists such advertisements (Browse), using
// github.com/grandcat/zeroconf.
package discovery
