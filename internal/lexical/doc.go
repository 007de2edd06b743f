// Package lexical finds library templates by canonical form.
//
// Exact lookup is a map hit. Similar lookup scores every eligible canonical
// form with a Ratcliff/Obershelp matching-blocks ratio over runes,
// 2*M/T where M is the number of matched runes and T the total length of
// both strings. Scores above the threshold are ranked descending; equal
// scores keep library order.
package lexical
