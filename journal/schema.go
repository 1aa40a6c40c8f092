// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package journal

// one row per submitted transaction
const entryTableSchema = `
create table if not exists entry (
	txID blob(32) primary key,
	kind integer,
	amount text,
	owner blob(20),
	status text,
	createdAt integer,
	updatedAt integer
);

CREATE INDEX if not exists ownerIndex on entry(owner);
CREATE INDEX if not exists statusIndex on entry(status);
`
