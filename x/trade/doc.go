/*
Package trade implements the trade ledger of a trade finance escrow.

A buyer creates a trade and deposits its value. The seller submits the
fingerprint of the trade documents, that the verifier attests. Once the
documents are verified the seller marks the goods as shipped and the buyer
confirms the delivery, which releases the value to the seller.

Either the buyer or the seller can raise a dispute before the delivery is
confirmed. The verifier resolves a dispute by releasing the value to the
seller or refunding it to the buyer. A buyer can claim an emergency refund of
a trade that was not shipped, once the configured delay since its creation
has passed.

Released and refunded trades are never deleted. The disposed value is
credited to the pending balance of the receiving party, see the balance
package.

Every transition is guarded by two independent checks. The caller must hold
the role that the transition requires and the trade must be in one of the
states that the transition starts from. Both are declared in the transitions
table.
*/
package trade
