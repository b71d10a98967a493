// Package validate checks parsed or uploaded shop records before they are
// exported or merged into the price index.
//
// Every rule runs against every record and all violations are collected;
// nothing is fail-fast. A batch with any violation is rejected as a whole.
package validate
