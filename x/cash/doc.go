/*
Package cash defines a simple wallet holding a set of coins per address,
along with a Controller that other extensions use to move funds without
knowing the storage details.
*/
package cash
