/*
Package balance keeps track of funds owed to parties.

Funds enter the system when a trade is created (Deposit) and are kept in the
reserve. When a trade is disposed, its value is credited to the balance of
the seller or the buyer. A party takes the funds out of the system by
withdrawing its whole balance, which is handed off to the value transfer
service.
*/
package balance
