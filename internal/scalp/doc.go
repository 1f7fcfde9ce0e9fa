// Package scalp builds the proxy surface: a smoothed, slightly offset
// dome shrink-wrapped onto a coarse source mesh. Every movement and
// orientation query in the rest of the system runs against this proxy,
// never against the source mesh, which removes the normal
// discontinuities a coarse triangulation would otherwise feed into
// coil placement.
//
// The build is wholesale: a changed source mesh or landmark set means
// a new proxy, never an in-place patch of the old one.
package scalp
