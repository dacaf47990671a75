// Package rules decides who may take which meeting part.
//
// Everything in this package is a pure function of its inputs: a qualification
// table derived from cargo, gender and age, a static part catalog, an eligibility
// filter with rotation ordering, an assistant pairing resolver and a per-week
// planner. Callers load snapshots and persist the resulting plan.
package rules
