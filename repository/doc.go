// Package repository provides generic read, write and read-write
// repositories over a change-tracking session. Reads compose a filter, a
// multi-key sort, skip/take paging and related-data includes into one lazy
// query; writes mark entities for insert, update or delete and optionally
// save them right away.
package repository
