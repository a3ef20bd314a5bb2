package ledger

// Object-graph queries. The whitelist query walks dynamic-field pages via
// the after cursor; earlier iterations fetched only the first page and
// silently truncated large timelines.

const whitelistQuery = `
  query GetWhitelist($id: SuiAddress!, $after: String) {
    object(address: $id) {
      address
      version
      digest
      asMoveObject {
        contents {
          ... on MoveValue {
            json
          }
        }
      }
      dynamicFields(after: $after) {
        pageInfo {
          hasNextPage
          endCursor
        }
        nodes {
          name {
            ... on MoveValue {
              type {
                repr
              }
              json
              bcs
            }
          }
          value {
            __typename
            ... on MoveValue {
              json
              bcs
            }
            ... on MoveObject {
              address
              version
              digest
              contents {
                ... on MoveValue {
                  json
                  bcs
                }
              }
            }
          }
        }
      }
    }
  }
`

const objectSnapshotQuery = `
  query GetObjectSnapshot($id: SuiAddress!) {
    object(address: $id) {
      address
      version
      digest
      type {
        repr
      }
      asMoveObject {
        contents {
          ... on MoveValue {
            json
            bcs
          }
        }
      }
    }
  }
`
