// Package tracker answers the three surface queries coil placement is
// built on: closest surface point, screen-ray hit, and spherical
// projection. All queries run against the proxy surface only and share
// one continuity rule: with a valid reference point, a multi-hit ray
// resolves to the intersection nearest that reference.
package tracker
