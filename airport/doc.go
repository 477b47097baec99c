// Package airport loads the datahub airport-codes dataset and answers
// nearest-airport queries with a kdgo index.
//
// Positions are mapped onto a sphere of mean Earth radius so that Euclidean
// distance between the resulting Cartesian points orders airports the same
// way great-circle distance does at equal elevation.
package airport
