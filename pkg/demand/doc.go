// Package demand reads the electricity demand and supply CSV feeds that
// Japanese power companies publish.
//
// A Format records where each fact sits in one publisher's document. A
// Parser fetches the document once and projects lines into PeakRecord and
// DemandSample values. Amounts are in man-kW (10,000 kW).
package demand
