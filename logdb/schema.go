// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for committed flash withdrawals
const withdrawalTableSchema = `
create table if not exists flash_withdraw (
	seq integer,
	withdrawIndex integer,
	farm blob(32),
	farmer blob(32),
	identity blob(32),
	vault blob(32),
	destination blob(32),
	mint blob(32),
	amount blob,
	rarity blob,
	accrued blob,
	ts integer,
	primary key (seq, withdrawIndex)
);

CREATE INDEX if not exists farmIndex on flash_withdraw(farm, seq);
CREATE INDEX if not exists farmerIndex on flash_withdraw(farmer, seq);
CREATE INDEX if not exists tsIndex on flash_withdraw(ts);
`
